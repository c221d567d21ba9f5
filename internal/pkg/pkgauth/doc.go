// Package pkgauth carries the authenticated principal through request contexts.
//
// Modules that own users implement Authenticator; every other module only reads
// the principal back with FromContext and never depends on the auth module.
package pkgauth
