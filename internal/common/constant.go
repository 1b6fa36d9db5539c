package common

// UsersTable is the default name of the user table in every store backend.
const UsersTable = "users"

// EmailKey is the primary key attribute of the user table.
const EmailKey = "email"
