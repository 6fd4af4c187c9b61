// Package usda integrates the USDA FoodData Central database for
// nutritional verification and comparison.
package usda

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.nal.usda.gov/fdc/v1"

// Food is a simplified food record with the nutrients we care about.
// Nutrient pointers are nil when the database has no value.
type Food struct {
	Description string   `json:"description"`
	Brand       string   `json:"brand"`
	Calories    *float64 `json:"calories"`
	Protein     *float64 `json:"protein"`
	Sodium      *float64 `json:"sodium"`
	Carbs       *float64 `json:"carbs"`
	Fat         *float64 `json:"fat"`
}

// Client queries the FoodData Central REST API.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// SetBaseURL overrides the API endpoint, used by tests.
func (c *Client) SetBaseURL(u string) {
	c.baseURL = u
}

type searchResponse struct {
	Foods []struct {
		Description   string `json:"description"`
		BrandOwner    string `json:"brandOwner"`
		FoodNutrients []struct {
			NutrientName string  `json:"nutrientName"`
			Value        float64 `json:"value"`
		} `json:"foodNutrients"`
	} `json:"foods"`
}

// Search looks up food items matching the query, restricted to the
// Survey (FNDDS) and Branded data types which cover common foods.
func (c *Client) Search(ctx context.Context, query string, pageSize int) ([]Food, error) {
	if pageSize <= 0 {
		pageSize = 5
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("pageSize", fmt.Sprintf("%d", pageSize))
	params.Add("dataType", "Survey (FNDDS)")
	params.Add("dataType", "Branded")
	if c.apiKey != "" {
		params.Set("api_key", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/foods/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building USDA request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("searching USDA database: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("USDA API returned status %d", resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding USDA response: %w", err)
	}

	foods := make([]Food, 0, len(parsed.Foods))
	for _, f := range parsed.Foods {
		item := Food{Description: f.Description, Brand: f.BrandOwner}
		if item.Description == "" {
			item.Description = "Unknown"
		}
		if item.Brand == "" {
			item.Brand = "Generic"
		}

		for _, n := range f.FoodNutrients {
			v := round1(n.Value)
			switch {
			case strings.Contains(n.NutrientName, "Energy") && strings.Contains(n.NutrientName, "kcal"):
				item.Calories = &v
			case strings.Contains(n.NutrientName, "Protein"):
				item.Protein = &v
			case strings.Contains(n.NutrientName, "Sodium"):
				item.Sodium = &v
			case strings.Contains(n.NutrientName, "Carbohydrate"):
				item.Carbs = &v
			case strings.Contains(n.NutrientName, "Total lipid (fat)") || strings.Contains(n.NutrientName, "Fat"):
				item.Fat = &v
			}
		}

		foods = append(foods, item)
	}

	return foods, nil
}

// Compare renders a markdown comparison table for two food items.
func (c *Client) Compare(ctx context.Context, item1, item2 string) (string, error) {
	results1, err := c.Search(ctx, item1, 1)
	if err != nil {
		return "", err
	}
	results2, err := c.Search(ctx, item2, 1)
	if err != nil {
		return "", err
	}
	if len(results1) == 0 || len(results2) == 0 {
		return "Could not retrieve nutritional data for comparison.", nil
	}

	f1, f2 := results1[0], results2[0]

	var b strings.Builder
	b.WriteString("### Nutritional Comparison\n\n")
	fmt.Fprintf(&b, "**%s** vs **%s**\n\n", f1.Description, f2.Description)
	fmt.Fprintf(&b, "| Nutrient | %s | %s | Difference |\n", firstN(f1.Description, 20), firstN(f2.Description, 20))
	b.WriteString("|----------|---------|---------|------------|\n")
	fmt.Fprintf(&b, "| Calories | %s | %s | %s |\n", fmtVal(f1.Calories), fmtVal(f2.Calories), fmtDiff(f1.Calories, f2.Calories))
	fmt.Fprintf(&b, "| Protein (g) | %s | %s | %s |\n", fmtVal(f1.Protein), fmtVal(f2.Protein), fmtDiff(f1.Protein, f2.Protein))
	fmt.Fprintf(&b, "| Sodium (mg) | %s | %s | %s |\n", fmtVal(f1.Sodium), fmtVal(f2.Sodium), fmtDiff(f1.Sodium, f2.Sodium))
	fmt.Fprintf(&b, "| Carbs (g) | %s | %s | %s |\n", fmtVal(f1.Carbs), fmtVal(f2.Carbs), fmtDiff(f1.Carbs, f2.Carbs))
	fmt.Fprintf(&b, "| Fat (g) | %s | %s | %s |\n", fmtVal(f1.Fat), fmtVal(f2.Fat), fmtDiff(f1.Fat, f2.Fat))
	b.WriteString("\n*Source: USDA FoodData Central*\n")

	return b.String(), nil
}

// VerifyCalories checks a claimed calorie count against the top USDA
// matches. A difference under 50 calories counts as a close match.
func (c *Client) VerifyCalories(ctx context.Context, foodName string, claimedCalories int) (string, error) {
	results, err := c.Search(ctx, foodName, 3)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return fmt.Sprintf("Could not verify nutrition data for %q in USDA database.", foodName), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "### USDA Verification for %q\n\n", foodName)
	fmt.Fprintf(&b, "**Claimed calories:** %d\n\n", claimedCalories)
	b.WriteString("**USDA Database Results:**\n\n")

	for i, food := range results {
		if food.Calories == nil {
			fmt.Fprintf(&b, "%d. %s: No calorie data\n", i+1, food.Description)
			continue
		}
		status := "Different"
		if math.Abs(*food.Calories-float64(claimedCalories)) < 50 {
			status = "Close match"
		}
		fmt.Fprintf(&b, "%d. %s: %.1f cal - %s\n", i+1, food.Description, *food.Calories, status)
	}

	return b.String(), nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func fmtVal(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.1f", *v)
}

func fmtDiff(a, b *float64) string {
	if a == nil || b == nil {
		return "N/A"
	}
	diff := *a - *b
	if diff > 0 {
		return fmt.Sprintf("+%.1f", diff)
	}
	return fmt.Sprintf("%.1f", diff)
}

func firstN(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
