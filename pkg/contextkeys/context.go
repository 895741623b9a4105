package contextkeys

type contextKey string

// DBContextKey holds the *gorm.DB (pool or transaction) for the request
const DBContextKey = contextKey("db")

// Identity keys set by the identity middleware in gin.Context
const (
	MemberIDKey = "memberID"
	GuestIDKey  = "guestID"
	RoleKey     = "role"
)
