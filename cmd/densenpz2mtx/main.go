package main

import (
	"github.com/KyungWonPark/mtxconv/internal/cli"
	"github.com/KyungWonPark/mtxconv/internal/convert"
)

func main() { // densenpz2mtx <source> [-t target] [-r] [-s]
	cli.Main(cli.NewCommand(convert.DenseNpzToMtx(), "Convert dense ndarray npz files to matrix market text files."))
}
