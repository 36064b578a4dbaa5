// Package auth keeps the session state of a wallet web client and decides
// which areas of the application a visitor may enter.
//
// Session store:
//   - Store holds the identity of one browser client. The first
//     EnsureInitialized call verifies the remote session; concurrent callers
//     share that single verification. Login and Logout update the state
//     synchronously and notify subscribers.
//   - A verification rejected because the account logged in elsewhere keeps
//     the store loading until the client reloads. Any other failure leaves an
//     anonymous, settled state.
//   - Registry scopes one Store per client key so sessions never leak
//     between visitors. Idle stores are swept.
//
// Role hints:
//   - HintStore remembers the last role that logged in so Logout can send the
//     client to the matching entry point even when the state is already
//     empty. Memory, SQL and Redis backends are provided.
//
// Guards:
//   - AuthenticatedOnly, EndUserOnly, SuperAdminOnly and PeerOnly evaluate a
//     State to PENDING, DENIED or GRANTED. Denied decisions carry the route
//     the visitor should be redirected to.
package auth
