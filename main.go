package main

import "github.com/ridoystarlord/sqlbuns/cmd/sqlbuns"

func main() {
	sqlbuns.Execute()
}
