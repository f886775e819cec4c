package main

import (
	"github.com/KyungWonPark/mtxconv/internal/cli"
	"github.com/KyungWonPark/mtxconv/internal/convert"
)

func main() { // npz2mtx <source> [-t target] [-r] [-s]
	cli.Main(cli.NewCommand(convert.NpzToMtx(), "Convert sparse npz files to matrix market text files."))
}
