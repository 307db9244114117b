// Package models contains the GORM persistence models for shipments and goods
// payments. Domain entities carry no ORM tags; each model converts to and
// from its entity with ToDomain and a *FromDomain constructor.
package models
