package authors

// UpdateAuthorOptions lists the columns of the author to write.
type UpdateAuthorOptions struct {
	Columns []string
}

// AuthorDetails is enrichment data for an author, usually from an author
// provider.
type AuthorDetails struct {
	Biography        *string           `json:"biography,omitempty"`
	BirthDate        *string           `json:"birth_date,omitempty" validate:"omitempty,max=50"`
	DeathDate        *string           `json:"death_date,omitempty" validate:"omitempty,max=50"`
	Nationality      *string           `json:"nationality,omitempty" validate:"omitempty,max=100"`
	PhotoFingerprint *string           `json:"photo_fingerprint,omitempty"`
	SocialLinks      map[string]string `json:"social_links,omitempty" validate:"omitempty,dive,url"`
	ProviderKey      *string           `json:"provider_key,omitempty"`
}
