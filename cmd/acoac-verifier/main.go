// Command acoac-verifier decides administrative reachability of an
// attribute-based access control policy. See internal/driver for the
// verification pipeline and internal/config for the CLI flag set.
package main

import "github.com/acoac-verify/acoac-checker/cmd/acoac-verifier/cmd"

func main() {
	cmd.Execute()
}
