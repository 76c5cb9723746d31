package transfer

type UnsplashSearchResponse struct {
	Total   int             `json:"total"`
	Results []UnsplashPhoto `json:"results"`
}

type UnsplashPhoto struct {
	ID             string `json:"id"`
	Description    string `json:"description"`
	AltDescription string `json:"alt_description"`
	URLs           struct {
		Regular string `json:"regular"`
		Full    string `json:"full"`
	} `json:"urls"`
	Links struct {
		HTML             string `json:"html"`
		Download         string `json:"download"`
		DownloadLocation string `json:"download_location"`
	} `json:"links"`
	User struct {
		Name  string `json:"name"`
		Links struct {
			HTML string `json:"html"`
		} `json:"links"`
	} `json:"user"`
}

type UnsplashDownloadResponse struct {
	URL string `json:"url"`
}

type PexelsSearchResponse struct {
	TotalResults int           `json:"total_results"`
	Photos       []PexelsPhoto `json:"photos"`
}

type PexelsPhoto struct {
	ID              int64  `json:"id"`
	URL             string `json:"url"`
	Alt             string `json:"alt"`
	Photographer    string `json:"photographer"`
	PhotographerURL string `json:"photographer_url"`
	Src             struct {
		Original string `json:"original"`
		Large    string `json:"large"`
	} `json:"src"`
}
