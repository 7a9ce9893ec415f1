// Package httpapp provides the HTTP server for the bloglist API.
//
//	@title						Bloglist API
//	@version					1.0
//	@description				Blogs and their owners.
//	@description
//	@description				## Authentication
//	@description
//	@description				Creating and deleting blogs requires a bearer token.
//	@description				```bash
//	@description				curl -X POST /api/users -d '{"username":"mluukkai","name":"Matti Luukkainen","password":"salainen"}'
//	@description				curl -X POST /api/login -d '{"username":"mluukkai","password":"salainen"}'
//	@description				# Returns: {"token": "TOKEN", "username": "mluukkai", "name": "Matti Luukkainen"}
//	@description				curl -X POST /api/blogs -H "Authorization: bearer TOKEN" -d '{"title":"...","url":"..."}'
//	@description				```
//	@description
//	@description				Tokens do not expire.
//
//	@host						localhost:3003
//	@BasePath					/
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				"bearer " followed by the token from /api/login
//
//	@tag.name					Blogs
//	@tag.description			Create, list, update and delete blogs.
//
//	@tag.name					Users
//	@tag.description			Sign up and log in.
//
//	@tag.name					Stats
//	@tag.description			Aggregates over all blogs.
package httpapp
