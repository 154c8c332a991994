// Package auth implements bearer token authentication and role based
// authorization over a relational user store.
//
// Tokens:
//   - TokenService issues HS256 (or HS384/HS512) JWTs whose payload is
//     {iss: user id, iat, exp}. Every decode failure surfaces as
//     ErrInvalidToken; ErrTokenExpired only exists so logs can tell them apart.
//
// Authorization:
//   - Authorizer decodes the token, loads the user with its roles, resolves the
//     union of role permissions and evaluates a Policy. A Policy requires any
//     one of its roles and any one of its permissions; an empty list passes.
//   - A token whose user was deleted is an invalid token, not a denial.
//
// Login and registration:
//   - Auther returns the same ErrInvalidCredential for an unknown username and
//     a wrong password.
//   - RegisterUserHandler validates username, password, confirmation and
//     profile fields in that order, then creates an inactive account.
//
// HTTP:
//   - RegisterAuthRoutes mounts /login, /register, /user-profile and /health on
//     a go-router Router. Errors are rendered by ErrorHandler as
//     {"message": ...} with the status from ErrorResponse.
//
// Activity sinks and metrics:
//   - ActivitySink and Metrics are optional observers of every login,
//     registration and authorization decision. Both default to no-ops and sink
//     errors are only logged.
package auth
