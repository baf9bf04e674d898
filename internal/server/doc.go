// Package server provides HTTP routing, middleware and the handlers of the ZenithX gateway.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Gateway
//
// [NewGateway] assembles the service run by `zenithx serve`:
//   - GET /api/search : [SearchHandler], text queries (q) and related lookups (relatedToVideoId)
//   - GET|POST /api/document : [DocumentHandler], the signed-in user's queue and liked songs
//   - GET /health
//
// Errors are written as {"error": "<message>"}.
//
// # Authentication
//
// [Authenticator] verifies `Authorization: Bearer <jwt>` headers (HS256, subject = user id) and mints tokens for
// development logins. The document route is registered behind [RequireAuth], which puts the claims on the request
// context; an anonymous request never reaches the store.
//
// # OAuth Callback Handler
//
// [OAuthHandler] implements the OAuth2 authorization code callback used by `zenithx auth login --browser`.
// It validates the state parameter (CSRF protection), exchanges the code with a PKCE verifier and sends the
// result through a channel. It only processes one callback to prevent replay attacks.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
