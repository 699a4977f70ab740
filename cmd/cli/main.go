package main

import (
	"github.com/crucial707/coursevault/cmd/cli/admin"
	"github.com/crucial707/coursevault/cmd/cli/auth"
	"github.com/crucial707/coursevault/cmd/cli/changes"
	"github.com/crucial707/coursevault/cmd/cli/root"
)

func main() {
	auth.InitAuth(root.GetRoot())
	changes.InitChanges(root.GetRoot())
	admin.InitAdmin(root.GetRoot())

	root.Execute()
}
