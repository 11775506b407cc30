package main

import (
	"github.com/hekima/shindano/core"
	"github.com/hekima/shindano/storage/database"
)

func (cli *commandLine) createDB() error {
	return database.CreateIfNotExist(core.Conf)
}
