package cache

// LookupMemoTable holds products resolved earlier in the same run.
const LookupMemoTable = "lookup_memo"

// LookupMemoSchema defines the schema for the lookup memo table.
// cache_key is the identifier exactly as it was looked up.
const LookupMemoSchema = `
CREATE TABLE IF NOT EXISTS lookup_memo (
	cache_key TEXT PRIMARY KEY NOT NULL,
	data TEXT NOT NULL,
	cached_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// AllCacheSchemas lists the schemas created when the global cache opens.
var AllCacheSchemas = []string{
	LookupMemoSchema,
}

// ValidCacheTableNames whitelists table names that may be interpolated into queries.
var ValidCacheTableNames = map[string]bool{
	LookupMemoTable: true,
}
