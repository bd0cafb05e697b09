// Package models contains the GORM models of the sync tables. Domain types in
// internal/domain/woosync carry no ORM tags; the To*/From* functions here convert
// between the two.
package models
