// Package services holds the outbound HTTP side of ZenithX.
//
// # Search Provider
//
// [Provider] abstracts an upstream video search backend. [YouTubeService] implements it against the YouTube Data
// API v3 search endpoint: text queries return up to a page of tracks (15 by default) and related lookups return at
// most one. Requests are paced by a token bucket limiter so a burst of autoplay lookups cannot exhaust the quota.
//
// [CachedProvider] wraps any provider with a [SearchCache]; [RedisCache] is the production cache.
//
// # Gateway Clients
//
// [APIService] is the raw HTTP client for the gateway, adding a bearer token when one is supplied. On top of it:
//   - [SearchClient] : GET /api/search for text queries and related lookups
//   - [DocumentClient] : GET and POST /api/document for the signed-in user's queue and liked songs
//
// # Error Handling
//
// Services use sentinel errors from the shared package:
//   - [shared.ErrMissingCredentials] : the provider has no API key (misconfiguration)
//   - [shared.ErrMissingQuery] : neither a query nor a video id was given
//   - [shared.ErrAPIRequest] : transport failure or non-2xx status
//   - [shared.ErrNotAuthenticated] : the gateway rejected the token
package services
