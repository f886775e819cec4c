package main

import (
	"github.com/KyungWonPark/mtxconv/internal/cli"
	"github.com/KyungWonPark/mtxconv/internal/convert"
)

func main() { // densemtx2npz <source> [-t target] [-r] [-s]
	cli.Main(cli.NewCommand(convert.DenseMtxToNpz(), "Convert matrix market text files to dense ndarray npz files."))
}
