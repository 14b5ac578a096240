package db

import "evote-node/modules/config"

type DbConfig struct {
	DbURI  string
	DbName string
}

func NewDbConfig(dataDir *string) *config.Config[DbConfig] {
	return config.New(DbConfig{
		DbURI:  "mongodb://localhost:27017",
		DbName: "evote",
	}, dataDir)
}
