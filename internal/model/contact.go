package model

// ContactRequest is the body of POST /contact.
type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// ContactResponse is the server's verdict. Message is shown to the user as-is.
type ContactResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// SocialLink is an outbound profile link shown in the header and footer.
type SocialLink struct {
	Name      string `json:"name"`
	URL       string `json:"url"`
	Icon      string `json:"icon"`
	AriaLabel string `json:"ariaLabel"`
}

// DefaultSocialLinks is the single source of truth for profile links.
func DefaultSocialLinks() []SocialLink {
	return []SocialLink{
		{
			Name:      "LinkedIn",
			URL:       "https://www.linkedin.com/in/alex-nelson-ryan-abena-439068290/",
			Icon:      "assets/images/LinkedIn.png",
			AriaLabel: "Visit LinkedIn profile",
		},
		{
			Name:      "Facebook",
			URL:       "https://facebook.com",
			Icon:      "assets/images/Facebook Circled.png",
			AriaLabel: "Visit Facebook profile",
		},
		{
			Name:      "GitHub",
			URL:       "https://github.com/NinjaShadowBoy/NinjaShadowBoy",
			Icon:      "assets/images/GitHub.png",
			AriaLabel: "Visit GitHub profile",
		},
	}
}
