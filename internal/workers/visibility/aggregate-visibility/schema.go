// internal/workers/visibility/aggregate-visibility/schema.go
package aggregatevisibility

// inputSchema is applied to the raw job variables before they are decoded.
// It guards the shape of upstream data, not its semantics: the aggregation
// itself tolerates missing optional fields.
const inputSchema = `{
  "type": "object",
  "required": ["results"],
  "properties": {
    "projectId": {"type": "string"},
    "keywordId": {"type": "string"},
    "results": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "required": ["provider"],
        "properties": {
          "provider": {"type": "string"},
          "model": {"type": "string"},
          "lastRun": {"type": "string"},
          "rankedEntities": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["name"],
              "properties": {
                "position": {"type": "integer"},
                "name": {"type": "string"},
                "isOwnBrand": {"type": "boolean"},
                "sentiment": {"type": "string"}
              }
            }
          },
          "citations": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["url"],
              "properties": {
                "url": {"type": "string"},
                "domain": {"type": "string"},
                "category": {"type": "string"},
                "isAccessible": {"type": "boolean"},
                "isOurDomain": {"type": "boolean"},
                "position": {"type": "integer"}
              }
            }
          }
        }
      }
    }
  }
}`
