package main

import (
	"context"
	"os"

	"github.com/gustavosantosASA/Florestal-App-PPR/pkg/logger"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "sheetctl", Output: os.Stderr})
	if err := newRootCmd(logg).ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
