// Package cli implements garagectl, the administration tool of the garage
// console.
//
// # Commands
//
// migrate: Create the database tables
//
//	garagectl migrate
//
// invite: Invite someone to a garage without signing in. The invitation is
// accepted the next time they visit the landing page.
//
//	garagectl invite -garage G1 -email alice@example.com -role GARAGE_ADMIN
//
// invitations, members: Inspect a garage
//
//	garagectl invitations -garage G1
//	garagectl members -garage G1
//
// plans: Print the billing plans and their limits
//
//	garagectl plans
//
// # Configuration
//
// The database is configured the same way as the server, through
// GARAGE_CONFIG_FILE and the GARAGE_DATABASE_* environment variables.
// Identity provider settings are not required.
package cli
