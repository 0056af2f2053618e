/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/tristendillon/tenantize/cmd"

func main() {
	cmd.Execute()
}
