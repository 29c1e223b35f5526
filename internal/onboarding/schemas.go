// internal/onboarding/schemas.go
package onboarding

const personalSchema = `{
  "type": "object",
  "required": ["fullName", "email"],
  "properties": {
    "fullName": {"type": "string", "minLength": 2, "maxLength": 100},
    "email": {"type": "string", "format": "email"},
    "country": {"type": "string"},
    "phone": {"type": "string", "pattern": "^\\+?[1-9][0-9]{6,14}$"}
  }
}`

const academicSchema = `{
  "type": "object",
  "required": ["gpa", "targetDegree"],
  "properties": {
    "gpa": {"type": "number", "minimum": 0, "maximum": 4},
    "targetDegree": {"type": "string", "enum": ["masters", "phd"]},
    "institution": {"type": "string"},
    "major": {"type": "string"},
    "graduationYear": {"type": "integer", "minimum": 1950, "maximum": 2100}
  }
}`

const testScoresSchema = `{
  "type": "object",
  "properties": {
    "gre": {"type": "integer", "minimum": 260, "maximum": 340},
    "toefl": {"type": "integer", "minimum": 0, "maximum": 120},
    "ielts": {"type": "number", "minimum": 0, "maximum": 9}
  },
  "minProperties": 1
}`

const researchSchema = `{
  "type": "object",
  "required": ["researchInterests"],
  "properties": {
    "researchInterests": {
      "type": "array",
      "minItems": 1,
      "items": {"type": "string", "minLength": 1}
    }
  }
}`

const preferencesSchema = `{
  "type": "object",
  "properties": {
    "countries": {"type": "array", "items": {"type": "string"}},
    "maxTuition": {"type": "number", "exclusiveMinimum": 0},
    "minAdmissionRate": {"type": "number", "minimum": 0, "maximum": 1}
  }
}`

const cvSchema = `{
  "type": "object",
  "properties": {
    "keywords": {"type": "array", "items": {"type": "string"}},
    "skills": {"type": "array", "items": {"type": "string"}},
    "researchAreas": {"type": "array", "items": {"type": "string"}},
    "overallScore": {"type": "number", "minimum": 0, "maximum": 1},
    "publications": {"type": "integer", "minimum": 0},
    "researchYears": {"type": "number", "minimum": 0}
  }
}`

const expertiseSchema = `{
  "type": "object",
  "required": ["fields", "yearsExperience"],
  "properties": {
    "fields": {"type": "array", "minItems": 1, "items": {"type": "string"}},
    "institutions": {"type": "array", "items": {"type": "string"}},
    "yearsExperience": {"type": "integer", "minimum": 0}
  }
}`

const availabilitySchema = `{
  "type": "object",
  "required": ["hoursPerWeek"],
  "properties": {
    "hoursPerWeek": {"type": "number", "exclusiveMinimum": 0, "maximum": 40},
    "timezone": {"type": "string"}
  }
}`

const verificationSchema = `{
  "type": "object",
  "properties": {
    "linkedinUrl": {"type": "string", "format": "uri"},
    "documentIds": {"type": "array", "items": {"type": "string"}}
  }
}`

const reviewSchema = `{
  "type": "object",
  "required": ["confirmed"],
  "properties": {
    "confirmed": {"type": "boolean", "enum": [true]}
  }
}`
