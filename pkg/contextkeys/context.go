package contextkeys

// Custom key type to avoid collisions with other context values.
type contextKey string

// DBContextKey is the key under which the *gorm.DB (pool or per-request
// transaction) is stored in the gin context by middleware.DBMiddleware.
const DBContextKey = contextKey("db")
