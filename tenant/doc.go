// Package tenant provides the organization registry that scopes requests.
//
// Tenants are loaded from a yaml file and looked up on every submit. When a
// file is configured the registry watches it and applies edits without a
// restart; a failed reload keeps the previous snapshot in place. Without a
// file the registry serves a single built-in default tenant.
package tenant
