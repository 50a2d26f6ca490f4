// Package config loads inboxsizer settings with viper.
//
// Values are resolved in the usual viper order: explicit flags, environment
// variables prefixed with INBOXSIZER_ (dots become underscores, so
// history.path is INBOXSIZER_HISTORY_PATH), the YAML config file, then
// defaults. The config file is optional.
package config
