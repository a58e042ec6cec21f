package redis

const keyPrefix = "mathtoys"

// key builds namespaced keys such as mathtoys:session:<id>.
func key(kind, id string) string {
	return keyPrefix + ":" + kind + ":" + id
}
