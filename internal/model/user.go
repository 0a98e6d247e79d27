package model

import "time"

// User represents an application user record as stored in the `users`
// table.  The username is the identity and never changes once created;
// users are never updated or deleted.
//
// Fields:
//  Username     – unique identifier chosen at registration.
//  PasswordHash – salted bcrypt hash; the plain password is never stored.
//  CreatedAt    – timestamp of registration.
type User struct {
    Username     string    // users.username
    PasswordHash string    // users.password_hash
    CreatedAt    time.Time // users.created_at
}
