package engine

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func testCatalog() []Item {
	return []Item{
		{ID: 27205, Title: "Inception", Overview: "A thief who steals corporate secrets through dream-sharing technology is given the task of planting an idea.", Genres: []string{"Action", "Science Fiction", "Thriller"}, Keywords: []string{"dream", "subconscious", "heist"}, Cast: []string{"Leonardo DiCaprio", "Joseph Gordon-Levitt", "Ellen Page", "Tom Hardy"}, Director: "Christopher Nolan"},
		{ID: 155, Title: "The Dark Knight", Overview: "Batman raises the stakes in his war on crime in Gotham.", Genres: []string{"Action", "Crime", "Drama"}, Keywords: []string{"dc comics", "joker", "vigilante"}, Cast: []string{"Christian Bale", "Heath Ledger", "Michael Caine"}, Director: "Christopher Nolan"},
		{ID: 157336, Title: "Interstellar", Overview: "A team of explorers travel through a wormhole in space to ensure humanity's survival.", Genres: []string{"Adventure", "Drama", "Science Fiction"}, Keywords: []string{"space", "wormhole", "time"}, Cast: []string{"Matthew McConaughey", "Anne Hathaway", "Michael Caine"}, Director: "Christopher Nolan"},
		{ID: 77, Title: "Memento", Overview: "A man with short-term memory loss hunts for his wife's killer using notes and tattoos.", Genres: []string{"Mystery", "Thriller"}, Keywords: []string{"memory", "amnesia", "revenge"}, Cast: []string{"Guy Pearce", "Carrie-Anne Moss", "Joe Pantoliano"}, Director: "Christopher Nolan"},
		{ID: 1124, Title: "The Prestige", Overview: "Two rival magicians engage in a battle to create the ultimate illusion.", Genres: []string{"Drama", "Mystery", "Thriller"}, Keywords: []string{"magic", "rivalry", "obsession"}, Cast: []string{"Hugh Jackman", "Christian Bale", "Michael Caine"}, Director: "Christopher Nolan"},
		{ID: 603, Title: "The Matrix", Overview: "A hacker learns that reality is a simulation and joins a rebellion against machines.", Genres: []string{"Action", "Science Fiction"}, Keywords: []string{"simulation", "hacker", "dream"}, Cast: []string{"Keanu Reeves", "Laurence Fishburne", "Carrie-Anne Moss"}, Director: "Lana Wachowski"},
		{ID: 19995, Title: "Avatar", Overview: "A paraplegic marine is dispatched to the moon Pandora on a unique mission.", Genres: []string{"Action", "Adventure", "Science Fiction"}, Keywords: []string{"space", "alien", "future"}, Cast: []string{"Sam Worthington", "Zoe Saldana", "Sigourney Weaver"}, Director: "James Cameron"},
		{ID: 597, Title: "Titanic", Overview: "A young aristocrat falls in love with a kind but poor artist aboard the luxurious ship.", Genres: []string{"Drama", "Romance"}, Keywords: []string{"shipwreck", "love", "iceberg"}, Cast: []string{"Leonardo DiCaprio", "Kate Winslet", "Billy Zane"}, Director: "James Cameron"},
		{ID: 475557, Title: "Joker", Overview: "A failed comedian descends into madness in Gotham.", Genres: []string{"Crime", "Thriller", "Drama"}, Keywords: []string{"dc comics", "joker", "mental illness"}, Cast: []string{"Joaquin Phoenix", "Robert De Niro", "Zazie Beetz"}, Director: "Todd Phillips"},
		{ID: 1726, Title: "Iron Man", Overview: "An industrialist builds an armored suit to escape captivity and fight evil.", Genres: []string{"Action", "Science Fiction", "Adventure"}, Keywords: []string{"marvel comic", "superhero", "armor"}, Cast: []string{"Robert Downey Jr.", "Terrence Howard", "Gwyneth Paltrow"}, Director: "Jon Favreau"},
		{ID: 284054, Title: "Black Panther", Overview: "The king of Wakanda must defend his nation from a challenger.", Genres: []string{"Action", "Adventure", "Science Fiction"}, Keywords: []string{"marvel comic", "superhero", "africa"}, Cast: []string{"Chadwick Boseman", "Michael B. Jordan", "Lupita Nyong'o"}, Director: "Ryan Coogler"},
		{ID: 348, Title: "Alien", Overview: "The crew of a commercial spacecraft encounter a deadly lifeform.", Genres: []string{"Horror", "Science Fiction"}, Keywords: []string{"space", "alien", "android"}, Cast: []string{"Sigourney Weaver", "Tom Skerritt", "John Hurt"}, Director: "Ridley Scott"},
		{ID: 679, Title: "Aliens", Overview: "Ripley returns to the planet with a unit of space marines.", Genres: []string{"Horror", "Action", "Science Fiction"}, Keywords: []string{"space", "alien", "marine"}, Cast: []string{"Sigourney Weaver", "Michael Biehn", "Lance Henriksen"}, Director: "James Cameron"},
		{ID: 949, Title: "Heat", Overview: "A group of professional bank robbers start to feel the heat from police.", Genres: []string{"Action", "Crime", "Drama"}, Keywords: []string{"heist", "robbery", "detective"}, Cast: []string{"Al Pacino", "Robert De Niro", "Val Kilmer"}, Director: "Michael Mann"},
		{ID: 862, Title: "Toy Story", Overview: "A cowboy doll feels threatened when a new spaceman figure arrives.", Genres: []string{"Animation", "Comedy", "Family"}, Keywords: []string{"toy", "friendship", "rivalry"}, Cast: []string{"Tom Hanks", "Tim Allen", "Don Rickles"}, Director: "John Lasseter"},
		{ID: 808, Title: "Shrek", Overview: "An ogre sets out to rescue a princess to reclaim his swamp.", Genres: []string{"Animation", "Comedy", "Family"}, Keywords: []string{"ogre", "fairy tale", "princess"}, Cast: []string{"Mike Myers", "Eddie Murphy", "Cameron Diaz"}, Director: "Andrew Adamson"},
		{ID: 49047, Title: "Gravity", Overview: "Two astronauts work together to survive after an accident leaves them stranded in space.", Genres: []string{"Science Fiction", "Thriller", "Drama"}, Keywords: []string{"space", "astronaut", "survival"}, Cast: []string{"Sandra Bullock", "George Clooney", "Ed Harris"}, Director: "Alfonso Cuaron"},
		{ID: 329865, Title: "Arrival", Overview: "A linguist works with the military to communicate with alien lifeforms.", Genres: []string{"Drama", "Science Fiction", "Mystery"}, Keywords: []string{"alien", "language", "time"}, Cast: []string{"Amy Adams", "Jeremy Renner", "Forest Whitaker"}, Director: "Denis Villeneuve"},
		{ID: 374720, Title: "Dunkirk", Overview: "Allied soldiers are surrounded by the enemy and evacuated during a fierce battle.", Genres: []string{"War", "Action", "Drama"}, Keywords: []string{"world war ii", "evacuation", "survival"}, Cast: []string{"Fionn Whitehead", "Tom Hardy", "Mark Rylance"}, Director: "Christopher Nolan"},
		{ID: 577922, Title: "Tenet", Overview: "A secret agent manipulates the flow of time to prevent world war.", Genres: []string{"Action", "Thriller", "Science Fiction"}, Keywords: []string{"time", "espionage", "heist"}, Cast: []string{"John David Washington", "Robert Pattinson", "Elizabeth Debicki"}, Director: "Christopher Nolan"},
		{ID: 320, Title: "Insomnia", Overview: "Two detectives investigate a murder in a town where the sun never sets.", Genres: []string{"Crime", "Mystery", "Thriller"}, Keywords: []string{"detective", "insomnia", "murder"}, Cast: []string{"Al Pacino", "Robin Williams", "Hilary Swank"}, Director: "Christopher Nolan"},
		{ID: 11660, Title: "Following", Overview: "A young writer follows strangers for inspiration and is drawn into a criminal underworld.", Genres: []string{"Crime", "Mystery", "Thriller"}, Keywords: []string{"burglary", "obsession", "writer"}, Cast: []string{"Jeremy Theobald", "Alex Haw", "Lucy Russell"}, Director: "Christopher Nolan"},
		{ID: 59967, Title: "Looper", Overview: "A hit man who kills targets sent back in time faces his future self.", Genres: []string{"Action", "Thriller", "Science Fiction"}, Keywords: []string{"time travel", "assassin", "future"}, Cast: []string{"Joseph Gordon-Levitt", "Bruce Willis", "Emily Blunt"}, Director: "Rian Johnson"},
		{ID: 45612, Title: "Source Code", Overview: "A soldier relives the last minutes of a bomber's victim to find the culprit.", Genres: []string{"Action", "Thriller", "Science Fiction"}, Keywords: []string{"time loop", "bomb", "simulation"}, Cast: []string{"Jake Gyllenhaal", "Michelle Monaghan", "Vera Farmiga"}, Director: "Duncan Jones"},
		{ID: 206487, Title: "Predestination", Overview: "A temporal agent pursues a criminal through time.", Genres: []string{"Science Fiction", "Thriller"}, Keywords: []string{"time travel", "paradox", "agent"}, Cast: []string{"Ethan Hawke", "Sarah Snook", "Noah Taylor"}, Director: "Michael Spierig"},
		{ID: 78, Title: "Blade Runner", Overview: "A blade runner must pursue and terminate replicants who have returned to Earth.", Genres: []string{"Science Fiction", "Drama", "Thriller"}, Keywords: []string{"android", "dystopia", "future"}, Cast: []string{"Harrison Ford", "Rutger Hauer", "Sean Young"}, Director: "Ridley Scott"},
		{ID: 180, Title: "Minority Report", Overview: "A police unit arrests murderers before they commit their crimes.", Genres: []string{"Action", "Thriller", "Science Fiction"}, Keywords: []string{"future", "precognition", "detective"}, Cast: []string{"Tom Cruise", "Colin Farrell", "Samantha Morton"}, Director: "Steven Spielberg"},
		{ID: 264660, Title: "Ex Machina", Overview: "A programmer evaluates the human qualities of a humanoid artificial intelligence.", Genres: []string{"Drama", "Science Fiction"}, Keywords: []string{"artificial intelligence", "android", "dream"}, Cast: []string{"Domhnall Gleeson", "Alicia Vikander", "Oscar Isaac"}, Director: "Alex Garland"},
	}
}

// testRatings produces a deterministic rating history over the test catalog
// for users 1 through 15.
func testRatings() []Rating {
	catalog := testCatalog()
	var ratings []Rating
	for user := int64(1); user <= 15; user++ {
		for i, item := range catalog {
			if (int(user)+i)%3 == 0 {
				continue
			}
			value := 0.5 + float64((int(user)*7+i*3)%10)*0.5
			ratings = append(ratings, Rating{UserID: user, ItemID: item.ID, Value: value})
		}
	}
	return ratings
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Preference.Factors = 8
	cfg.Preference.Epochs = 10
	return cfg
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func buildTestModel(t *testing.T) *Model {
	t.Helper()
	model, err := Build(context.Background(), testCatalog(), testRatings(), testConfig(), quietLogger())
	require.NoError(t, err)
	return model
}
