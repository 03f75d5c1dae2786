// Package http provides HTTP handlers and middleware for the studio API.
//
// The router exposes the following endpoints:
//   - POST /auth/login: issues a session token. Body: {"username","password"}.
//     Response: {"token","account_id","username","role","expires_at"} with the
//     token also surfaced via the `X-Session-Token` header and a
//     `session_token` cookie.
//   - POST /auth/logout: revokes the current session token extracted from the
//     Authorization header or session cookie. Returns 204 No Content and clears
//     the cookie.
//   - POST /auth/register: administrator controlled staff account creation
//     exchanging the `accountDTO` payload defined in auth_handler.go.
//   - /clients, /rooms, /equipment, /classes, /bookings, /enrollments,
//     /attendance, /payments: aggregate CRUD endpoints following a uniform
//     shape of GET (list), POST (create) on the collection and GET, PUT, DELETE
//     on /{id}. Each aggregate exchanges the DTO payload defined alongside its
//     handler. Deleting, and for rooms and equipment also mutating, requires
//     admin privileges.
//   - GET /classes/{id}/conflicts: probes room availability for each session of
//     a class and returns {"conflicts":{"<session>":bool}}.
//   - GET /bookings/availability: answers whether a resource window is free.
//     Query: service_type, resource_id, start, end (RFC3339). Response:
//     {"available":bool}.
//   - POST /bookings/{id}/cancel: marks a booking cancelled, freeing its window.
//   - POST /bookings/{id}/return: records an equipment return on a rental
//     booking. A second return is rejected.
//   - GET /calendar/events: lists the materialized calendar, optionally bounded
//     by from/to query parameters.
//   - POST /calendar/sync: rebuilds the materialized calendar on demand.
//
// All endpoints except /auth/login sit behind the RequireSession middleware.
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
