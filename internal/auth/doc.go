// Package auth holds the token module and the credential module.
//
// Tokens are HS256 JWTs carrying the user's id and username. Passwords are
// stored as bcrypt hashes and must be at least MinPasswordLength characters.
package auth
