// Package config loads meetlink configuration.
//
// Values come from built-in defaults, an optional YAML file and environment
// variables, later sources overriding earlier ones. Command-line flags are
// applied on top by the cmd package.
//
// Example file:
//
//	server:
//	  addr: ":8080"
//	  base_url: "https://meet.example.org"
//	oidc:
//	  issuer: "https://sso.example.org/realms/org"
//	  client_id: "meetlink"
//	google:
//	  credentials_file: "/etc/meetlink/credentials.json"
//	  delegated_subject: "calendar-admin@example.org"
//	meeting:
//	  time_zone: "Asia/Seoul"
package config
