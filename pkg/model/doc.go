// Package model describes the base objects manipulated by metabranch.
//
// The package exposes a model for account metadata.
//
// The object model is composed of:
//
//	Accounts:
//	  An account is a versioned record identified by a numeric id. Its
//	  state lives as commits on a dedicated branch of the ref store, so
//	  every past version remains addressable.
//
//	Updates:
//	  An update is a field-level delta to an account, built through an
//	  UpdateBuilder and applied atomically by the update layer.
package model
