// Package common holds helpers shared by the MCP tool packages.
package common
