package main

import "github.com/Quidge/orgbook-manage/cmd"

func main() {
	cmd.Execute()
}
