// Package main is the travelplanner command: the destination catalog server
// and its maintenance tasks.
//
//	travelplanner serve          run the HTTP server
//	travelplanner seed           replace the catalog with sample destinations
//	travelplanner ensure-admin   create or restore the bootstrap admin
//
// Configuration comes from the environment and an optional .env file.
//
// @title        Travel Planner API
// @version      1.0
// @description  Destination catalog with session authentication and role-based access.
// @BasePath     /
package main

func main() {
	Execute()
}
