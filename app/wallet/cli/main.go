package main

import "github.com/doniyorcoin/ledger/app/wallet/cli/cmd"

func main() {
	cmd.Execute()
}
