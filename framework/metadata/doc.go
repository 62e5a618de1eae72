// Package metadata holds component declarations: what the application wants
// registered, under which identifier, with which lifetime, constructor,
// routes, and middleware.
//
// Declarations are made with a fluent builder and collected into an explicit
// Registry owned by the application bootstrap. Nothing registers through
// package-level state; test code builds its own Registry and throws it away.
//
//	func Declare(r *metadata.Registry) {
//	    metadata.Service("UserService").
//	        Constructor(NewUserService).
//	        Register(r)
//
//	    metadata.Controller("UserController", "/users").
//	        Constructor(NewUserController).
//	        Use(metadata.Logging()).
//	        Get("/", (*UserController).List).
//	        Get("/:id", (*UserController).Show, metadata.Cache(30*time.Second)).
//	        Post("/", (*UserController).Create, metadata.Auth("admin"), metadata.Validate(createRules)).
//	        Register(r)
//	}
//
// The discovery engine finds component files on disk; the registrar matches
// them back to these declarations through their recorded source file and
// registers each one in the service container.
package metadata
