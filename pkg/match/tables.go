package match

// Static lookup tables for header-to-field resolution. Kept as data rather
// than conditionals so they can be tested and extended independently of the
// matching algorithm.

// synonyms maps canonical field concepts to alternate spellings seen in the
// wild. Lookup succeeds when the header matches an alternate and the schema
// field matches the canonical name, or the reverse.
var synonyms = map[string][]string{
	"email":   {"email_address", "user_email", "mail", "e_mail"},
	"phone":   {"mobile", "telephone", "contact", "tel", "cell"},
	"name":    {"full_name", "user_name", "customer_name", "display_name"},
	"dob":     {"birth_date", "date_of_birth", "birthday"},
	"id":      {"user_id", "customer_id", "identifier", "uid"},
	"zip":     {"postal_code", "zipcode", "postcode"},
	"company": {"organization", "org", "employer", "business"},
	"status":  {"state", "active", "enabled"},
	"created": {"created_at", "creation_date", "date_created"},
	"updated": {"updated_at", "modified", "last_modified"},
}

// canonicalConcepts lists the synonym keys in the fixed order the matcher
// walks them. Keep sorted.
var canonicalConcepts = []string{
	"company", "created", "dob", "email", "id",
	"name", "phone", "status", "updated", "zip",
}

// variants generates the common expanded forms of a normalized name.
// A header "phone" matches a schema field "phone_number" through these.
func variants(name string) []string {
	return []string{
		"user_" + name,
		name + "_address",
		name + "_number",
		name + "_id",
		"customer_" + name,
	}
}
