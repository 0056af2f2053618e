package models

import "sort"

type Method string

const (
	MethodGet    Method = "GET"
	MethodPost   Method = "POST"
	MethodPut    Method = "PUT"
	MethodPatch  Method = "PATCH"
	MethodDelete Method = "DELETE"
)

// HandlerRole is what a handler does to the tenant-owned resource.
type HandlerRole string

const (
	RoleReadList HandlerRole = "read-list"
	RoleReadOne  HandlerRole = "read-one"
	RoleCreate   HandlerRole = "create"
	RoleUpdate   HandlerRole = "update"
	RoleDelete   HandlerRole = "delete"
)

// Role classifies a method given whether the route addresses a single resource.
func (m Method) Role(paramRoute bool) HandlerRole {
	switch m {
	case MethodGet:
		if paramRoute {
			return RoleReadOne
		}
		return RoleReadList
	case MethodPost:
		return RoleCreate
	case MethodPut, MethodPatch:
		return RoleUpdate
	case MethodDelete:
		return RoleDelete
	default:
		return ""
	}
}

// Handler is one exported method handler and the byte segment it owns:
// from its declaration to the next handler declaration or end of file.
type Handler struct {
	Method Method
	Span   Span
}

type MigrationState int

const (
	StateUnmigrated MigrationState = iota
	StateAlreadyMigrated
	StateSkipped
	StateMigrated
	StateFailed
)

func (s MigrationState) String() string {
	switch s {
	case StateUnmigrated:
		return "unmigrated"
	case StateAlreadyMigrated:
		return "already-migrated"
	case StateSkipped:
		return "skipped"
	case StateMigrated:
		return "migrated"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// RouteFile is one handler source file. Content is only committed back to
// Path once every rewrite step succeeded.
type RouteFile struct {
	Path       string
	RelPath    string
	Label      string
	RawContent string
	Content    string
	Handlers   []Handler
	ParamRoute bool
	ParamName  string
	State      MigrationState
	Reason     string
}

// Methods returns the present handler methods, sorted.
func (rf *RouteFile) Methods() []Method {
	seen := make(map[Method]bool)
	var methods []Method
	for _, h := range rf.Handlers {
		if !seen[h.Method] {
			seen[h.Method] = true
			methods = append(methods, h.Method)
		}
	}
	sort.Slice(methods, func(i, j int) bool { return methods[i] < methods[j] })
	return methods
}

func (rf *RouteFile) Skip(reason string) {
	rf.State = StateSkipped
	rf.Reason = reason
}

func (rf *RouteFile) Fail(reason string) {
	rf.State = StateFailed
	rf.Reason = reason
}
