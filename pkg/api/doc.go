// Package api implements the OpsHub REST API: login, users, projects,
// tickets, and the audit trail.
//
// All routes under /api/v1 require a bearer token. Mutating routes carry
// role gates on top of authentication; reads are open to any authenticated
// role. The login route is the only public endpoint on the API server.
package api
