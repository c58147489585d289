// Package session implements cookie-backed server-side sessions.
//
// A Manager owns the cookie policy (name, security flags, lifetime) and a
// Store that persists session records keyed by opaque tokens. Two stores
// ship with the package: an in-process MemoryStore with a periodic expiry
// sweep, and a RedisStore for deployments where several instances must share
// sessions. The store is chosen once at construction, driven by Config.
//
// The manager's Middleware attaches a Session to the request context.
// Handlers read it with FromContext, bind a user to it through
// Manager.Authenticate after login or signup, and drop it through
// Manager.Destroy on logout. A session without a bound user id is a normal
// anonymous visitor, not an error.
//
//	cookies, _ := cookie.New([]string{secret})
//	manager := session.NewFromConfig(cfg, redisClient,
//	    session.WithCookieManager(cookies),
//	)
//	defer manager.Close()
//
//	r.Use(manager.Middleware)
//
// Cookie lifetime rules: when no Max-Age is configured the session cookie is
// a browser-session cookie and the server record falls back to DefaultTTL.
// Remember-me logins extend the cookie to RememberMeDays. Binding a user
// rotates the token.
package session
