package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Styling
var (
	docStyle = lipgloss.NewStyle().Margin(1, 2)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#0a84ff")).
			Padding(0, 1)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#30d158")).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#ff453a")).
			Padding(0, 1)
)

// Model defines the application state
type Model struct {
	mainMenu       list.Model
	profileList    list.Model
	mealTable      table.Model
	textInput      textinput.Model
	spinner        spinner.Model
	client         *ApiClient
	loading        bool
	currentView    string
	activeProfile  string
	profile        *Profile
	recommendation *RecommendResponse
	insights       string
	usage          *UsageSummary
	error          string
}

// item represents a list item
type item struct {
	title, desc string
}

// FilterValue implements list.Item interface
func (i item) FilterValue() string { return i.title }

// Title implements list.Item interface
func (i item) Title() string { return i.title }

// Description implements list.Item interface
func (i item) Description() string { return i.desc }

// Initialize the model
func initialModel() Model {
	// Initialize spinner
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	// Initialize main menu items
	items := []list.Item{
		item{title: "Get Recommendation", desc: "Ask the agents for a meal recommendation"},
		item{title: "Profiles", desc: "View and select user profiles"},
		item{title: "Insights", desc: "Eating-pattern insights for the active profile"},
		item{title: "Usage & Budget", desc: "API spend against daily and monthly limits"},
		item{title: "Exit", desc: "Exit the application"},
	}

	// Initialize main menu
	mainMenu := list.New(items, list.NewDefaultDelegate(), 0, 0)
	mainMenu.Title = "Mealwise CLI"

	// Initialize meal history view
	columns := []table.Column{
		{Title: "Restaurant", Width: 20},
		{Title: "Calories", Width: 10},
		{Title: "Rating", Width: 8},
		{Title: "Logged", Width: 18},
	}
	mealTable := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	// Initialize profile list view
	profileList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	profileList.Title = "Profiles"

	// Initialize text input
	ti := textinput.New()
	ti.Placeholder = "restaurant, calories, notes..."
	ti.Focus()
	ti.CharLimit = 156
	ti.Width = 40

	// Initialize API client
	client := NewApiClient()

	return Model{
		mainMenu:    mainMenu,
		profileList: profileList,
		mealTable:   mealTable,
		spinner:     s,
		textInput:   ti,
		client:      client,
		currentView: "main",
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tea.EnterAltScreen)
}

// Update handles UI updates
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "q":
			if m.currentView == "main" {
				return m, tea.Quit
			}
		case "enter":
			if m.currentView == "main" {
				selected, ok := m.mainMenu.SelectedItem().(item)
				if ok {
					switch selected.title {
					case "Exit":
						return m, tea.Quit
					case "Get Recommendation":
						m.currentView = "recommend"
						m.error = ""
						m.textInput.SetValue("")
						m.textInput.Focus()
					case "Profiles":
						m.currentView = "profiles"
						return m, fetchProfiles(m.client)
					case "Insights":
						m.currentView = "insights"
						m.loading = true
						return m, fetchInsights(m.client, m.activeProfile)
					case "Usage & Budget":
						m.currentView = "usage"
						return m, fetchUsage(m.client)
					}
				}
			} else if m.currentView == "profiles" {
				if selected, ok := m.profileList.SelectedItem().(item); ok {
					m.activeProfile = selected.title
					m.currentView = "profile_detail"
					return m, fetchProfile(m.client, selected.title)
				}
			} else if m.currentView == "recommend" && m.textInput.Focused() {
				return m.startRecommendation()
			}
		case "esc":
			if m.currentView != "main" {
				m.currentView = "main"
				m.error = ""
			}
		}
	case profilesMsg:
		items := make([]list.Item, len(msg.names))
		for i, name := range msg.names {
			desc := "Select as active profile"
			if name == m.activeProfile {
				desc = "Active profile"
			}
			items[i] = item{title: name, desc: desc}
		}
		m.profileList.SetItems(items)
		return m, nil
	case profileMsg:
		m.profile = msg.profile
		m.mealTable.SetRows(mealRows(msg.profile))
		return m, nil
	case recommendationMsg:
		m.loading = false
		m.recommendation = msg.result
		m.currentView = "recommend_result"
		return m, nil
	case insightsMsg:
		m.loading = false
		m.insights = msg.insights
		return m, nil
	case usageMsg:
		m.usage = msg.summary
		return m, nil
	case errorMsg:
		m.loading = false
		m.error = msg.err
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	switch m.currentView {
	case "main":
		m.mainMenu, cmd = m.mainMenu.Update(msg)
	case "profiles":
		m.profileList, cmd = m.profileList.Update(msg)
	case "profile_detail":
		m.mealTable, cmd = m.mealTable.Update(msg)
	case "recommend":
		m.textInput, cmd = m.textInput.Update(msg)
	}

	return m, cmd
}

// startRecommendation parses the input line and kicks off the pipeline
func (m Model) startRecommendation() (tea.Model, tea.Cmd) {
	req, err := parseRecommendInput(m.textInput.Value(), m.activeProfile)
	if err != nil {
		m.error = err.Error()
		return m, nil
	}

	m.error = ""
	m.loading = true
	return m, tea.Batch(m.spinner.Tick, runRecommendation(m.client, req))
}

// View renders the UI
func (m Model) View() string {
	switch m.currentView {
	case "main":
		header := ""
		if m.activeProfile != "" {
			header = infoStyle.Render("Active profile: "+m.activeProfile) + "\n\n"
		}
		return docStyle.Render(header + m.mainMenu.View())
	case "profiles":
		help := "\nPress 'enter' to select a profile, 'esc' to go back\n"
		if m.error != "" {
			help += errorStyle.Render(m.error) + "\n"
		}
		return docStyle.Render(titleStyle.Render("Profiles") + "\n\n" + m.profileList.View() + help)
	case "profile_detail":
		return docStyle.Render(profileDetailView(m.profile, m.mealTable))
	case "recommend":
		help := "\nFormat: <restaurant>, <calories>[, <notes>]\nPress 'enter' to submit, 'esc' to cancel\n"
		if m.error != "" {
			help += errorStyle.Render(m.error) + "\n"
		}
		body := m.textInput.View()
		if m.loading {
			body = m.spinner.View() + " Consulting the agents..."
		}
		return docStyle.Render(titleStyle.Render("Get Recommendation") + "\n\n" + body + help)
	case "recommend_result":
		return docStyle.Render(recommendationView(m.recommendation))
	case "insights":
		body := m.insights
		if m.loading {
			body = m.spinner.View() + " Analyzing your meal history..."
		}
		if m.error != "" {
			body = errorStyle.Render(m.error)
		}
		if m.activeProfile == "" {
			body = "Select a profile first (Profiles menu)."
		}
		return docStyle.Render(titleStyle.Render("Insights") + "\n\n" + body + "\n\nPress 'esc' to go back")
	case "usage":
		return docStyle.Render(usageView(m.usage, m.error))
	default:
		return "Loading..."
	}
}

// Custom message types for the tea.Model
type profilesMsg struct {
	names []string
}

type profileMsg struct {
	profile *Profile
}

type recommendationMsg struct {
	result *RecommendResponse
}

type insightsMsg struct {
	insights string
}

type usageMsg struct {
	summary *UsageSummary
}

type errorMsg struct {
	err string
}

// fetchProfiles retrieves profile names from the API
func fetchProfiles(client *ApiClient) tea.Cmd {
	return func() tea.Msg {
		names, err := client.ListProfiles()
		if err != nil {
			return errorMsg{err: fmt.Sprintf("Error fetching profiles: %v", err)}
		}
		return profilesMsg{names: names}
	}
}

// fetchProfile retrieves a single profile with meal history
func fetchProfile(client *ApiClient, name string) tea.Cmd {
	return func() tea.Msg {
		profile, err := client.GetProfile(name)
		if err != nil {
			return errorMsg{err: fmt.Sprintf("Error fetching profile: %v", err)}
		}
		return profileMsg{profile: profile}
	}
}

// runRecommendation calls the recommendation pipeline
func runRecommendation(client *ApiClient, req *RecommendRequest) tea.Cmd {
	return func() tea.Msg {
		result, err := client.Recommend(req)
		if err != nil {
			return errorMsg{err: fmt.Sprintf("Recommendation failed: %v", err)}
		}
		return recommendationMsg{result: result}
	}
}

// fetchInsights asks the profile manager for insights
func fetchInsights(client *ApiClient, profileName string) tea.Cmd {
	return func() tea.Msg {
		if profileName == "" {
			return insightsMsg{insights: ""}
		}
		insights, err := client.GetInsights(profileName)
		if err != nil {
			return errorMsg{err: fmt.Sprintf("Error fetching insights: %v", err)}
		}
		return insightsMsg{insights: insights}
	}
}

// fetchUsage retrieves the budget summary
func fetchUsage(client *ApiClient) tea.Cmd {
	return func() tea.Msg {
		summary, err := client.GetUsage()
		if err != nil {
			return errorMsg{err: fmt.Sprintf("Error fetching usage: %v", err)}
		}
		return usageMsg{summary: summary}
	}
}

// parseRecommendInput parses "restaurant, calories[, notes]"
func parseRecommendInput(input, profileName string) (*RecommendRequest, error) {
	parts := strings.SplitN(input, ",", 3)
	if len(parts) < 2 {
		return nil, fmt.Errorf("enter at least a restaurant and a calorie target")
	}

	restaurant := strings.TrimSpace(parts[0])
	if restaurant == "" {
		return nil, fmt.Errorf("restaurant name is required")
	}

	calories, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return nil, fmt.Errorf("calories must be a number")
	}

	notes := ""
	if len(parts) == 3 {
		notes = strings.TrimSpace(parts[2])
	}

	return &RecommendRequest{
		ProfileName: profileName,
		Restaurant:  restaurant,
		Calories:    calories,
		Notes:       notes,
	}, nil
}

// mealRows converts a profile's meal history to table rows
func mealRows(profile *Profile) []table.Row {
	if profile == nil {
		return nil
	}
	rows := make([]table.Row, 0, len(profile.MealHistory))
	for _, meal := range profile.MealHistory {
		rating := "-"
		if meal.Rating > 0 {
			rating = fmt.Sprintf("%d/5", meal.Rating)
		}
		rows = append(rows, table.Row{
			meal.Restaurant,
			strconv.Itoa(meal.Calories),
			rating,
			meal.LoggedAt.Format(time.Stamp),
		})
	}
	return rows
}

// profileDetailView renders a profile with stats and meal history
func profileDetailView(profile *Profile, mealTable table.Model) string {
	if profile == nil {
		return "Loading profile..."
	}

	view := titleStyle.Render("Profile: "+profile.Name) + "\n\n"
	view += fmt.Sprintf("Calorie target: %d\n", profile.DefaultCalorieTarget)
	if len(profile.DietaryRestrictions) > 0 {
		view += fmt.Sprintf("Restrictions: %s\n", strings.Join(profile.DietaryRestrictions, ", "))
	}
	view += fmt.Sprintf("Meals tracked: %d\n", profile.TotalMealsTracked)
	if profile.AvgMealCalories > 0 {
		view += fmt.Sprintf("Average calories: %.1f\n", profile.AvgMealCalories)
	}
	if profile.AvgMealRating > 0 {
		view += fmt.Sprintf("Average rating: %.1f/5\n", profile.AvgMealRating)
	}
	if profile.MostVisitedRestaurant != "" {
		view += fmt.Sprintf("Most visited: %s\n", profile.MostVisitedRestaurant)
	}

	view += "\n" + mealTable.View()
	view += "\n\nPress 'esc' to go back"
	return view
}

// recommendationView renders the pipeline output and session summary
func recommendationView(result *RecommendResponse) string {
	if result == nil {
		return "No recommendation yet."
	}

	view := titleStyle.Render("Recommendation") + "\n\n"
	view += result.Response + "\n\n"

	if result.Session != nil {
		if len(result.Session.AgentsUsed) > 0 {
			view += infoStyle.Render("Agents: "+strings.Join(result.Session.AgentsUsed, ", ")) + "\n"
		}
		if result.Session.FallbackTriggered {
			view += errorStyle.Render("Simplified single-agent mode was used") + "\n"
		}
		if result.Session.TokensUsed > 0 {
			view += fmt.Sprintf("Tokens used: %d\n", result.Session.TokensUsed)
		}
	}

	view += "\nPress 'esc' to go back"
	return view
}

// usageView renders the budget summary
func usageView(summary *UsageSummary, errText string) string {
	view := titleStyle.Render("Usage & Budget") + "\n\n"
	if errText != "" {
		return docStyle.Render(view + errorStyle.Render(errText))
	}
	if summary == nil {
		return view + "Loading..."
	}

	view += fmt.Sprintf("Daily:   $%.4f of $%.2f (%.1f%%)\n", summary.DailyUsage, summary.DailyLimit, summary.DailyPercent)
	view += fmt.Sprintf("Monthly: $%.4f of $%.2f (%.1f%%)\n", summary.MonthlyUsage, summary.MonthlyLimit, summary.MonthlyPercent)

	if summary.DailyPercent > 90 {
		view += "\n" + errorStyle.Render("Daily budget nearly exhausted") + "\n"
	} else if summary.DailyPercent > 80 {
		view += "\n" + infoStyle.Render("Approaching daily budget limit") + "\n"
	} else {
		view += "\n" + successStyle.Render("Budget healthy") + "\n"
	}

	view += "\nPress 'esc' to go back"
	return view
}

func main() {
	p := tea.NewProgram(initialModel())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running program: %v", err)
		os.Exit(1)
	}
}
