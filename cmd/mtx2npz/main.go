package main

import (
	"github.com/KyungWonPark/mtxconv/internal/cli"
	"github.com/KyungWonPark/mtxconv/internal/convert"
)

func main() { // mtx2npz <source> [-t target] [-r] [-s]
	cli.Main(cli.NewCommand(convert.MtxToNpz(), "Convert matrix market text files to npz files."))
}
