// Package io provides JSON import and export of discovered dependency
// graphs.
//
// # JSON Format
//
// Nodes are listed in dependency order: every node appears after the
// nodes it depends on. Edges run from the earlier node to the later one.
//
//	{
//	  "intent": "create",
//	  "mode": "full",
//	  "nodes": [
//	    {"path": "/Server/prod", "urn": "Server[@Name='prod']", "type": "Server", "order": 0},
//	    {"path": "/Server/prod/Login/app", "urn": "...", "type": "Login", "order": 1}
//	  ],
//	  "edges": [
//	    {"from": "/Server/prod", "to": "/Server/prod/Login/app", "kind": "child"}
//	  ]
//	}
//
// Edge kinds are "child" for containment and "reference" for ordering
// constraints between objects that do not contain each other.
//
// # Import
//
// [ReadJSON] and [ImportJSON] decode the format and check it: paths must
// be valid and unique, and every edge must name known nodes.
package io
