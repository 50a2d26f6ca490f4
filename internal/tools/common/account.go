package common

// GetAccountFromArgs returns the "account" argument, or fallback when it is
// missing, empty or not a string. An empty fallback means "default".
func GetAccountFromArgs(args map[string]interface{}, fallback string) string {
	if accountVal, ok := args["account"].(string); ok && accountVal != "" {
		return accountVal
	}
	if fallback == "" {
		return "default"
	}
	return fallback
}
