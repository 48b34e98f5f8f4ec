package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/penny-vault/pv-audit/cmd"
	"github.com/spf13/viper"
)

func configureViper() {
	// read config file
	viper.SetConfigName("config")
	viper.SetConfigType("toml")
	viper.AddConfigPath("/etc/pv-audit/")
	viper.AddConfigPath("$HOME/.config/pv-audit")
	viper.AddConfigPath(".")

	// every setting has a default, so running without a config file is fine
	err := viper.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if err != nil && !errors.As(err, &notFound) {
		fmt.Fprintf(os.Stderr, "fatal error config file: %s\n", err)
		os.Exit(1)
	}
}

func main() {
	configureViper()
	cmd.Execute()
}
