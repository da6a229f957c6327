// Package httpapi is the demo HTTP surface served by authd.
//
// Routes under /api/v1/ sit behind the runtime's guard. The account routes (/users,
// /sessions, /profile, /reset_password, /auth_token) are public and authenticate with the
// account session cookie or form credentials themselves.
package httpapi
