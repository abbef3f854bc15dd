package server

const (
	RouteHealth           = "/healthz"
	RouteSpotifyCallback  = "/api/spotify-callback"
	RouteSpotifyTopTracks = "/api/spotify-top-tracks"

	RouteAdminGroup        = "/admin"
	RouteAdminStats        = "/api/stats"
	RouteAdminSpotifyToken = "/api/spotify/token"

	RouteAdminExportStats    = "/api/export/stats"
	RouteAdminPrivacyCleanup = "/api/privacy/cleanup"
)

const (
	msgNoAuthorizationCode = "No authorization code provided"
	msgUnknownError        = "Unknown error occurred"
)
