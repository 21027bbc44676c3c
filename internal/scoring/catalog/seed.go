package catalog

// Base-game objective decks. Descriptions live with the board, not the ledger.

var stageOne = []Objective{
	{Name: "Corner the Market", Stage: StageOne, Phase: "Status", Points: 1},
	{Name: "Develop Weaponry", Stage: StageOne, Phase: "Status", Points: 1},
	{Name: "Diversify Research", Stage: StageOne, Phase: "Status", Points: 1},
	{Name: "Erect a Monument", Stage: StageOne, Phase: "Status", Points: 1},
	{Name: "Expand Borders", Stage: StageOne, Phase: "Status", Points: 1},
	{Name: "Found Research Outposts", Stage: StageOne, Phase: "Status", Points: 1},
	{Name: "Intimidate Council", Stage: StageOne, Phase: "Status", Points: 1},
	{Name: "Lead from the Front", Stage: StageOne, Phase: "Status", Points: 1},
	{Name: "Negotiate Trade Routes", Stage: StageOne, Phase: "Status", Points: 1},
	{Name: "Sway the Council", Stage: StageOne, Phase: "Status", Points: 1},
	{Name: "Amass Wealth", Stage: StageOne, Phase: "Status", Points: 1},
	{Name: "Build Defenses", Stage: StageOne, Phase: "Status", Points: 1},
	{Name: "Discover Lost Outposts", Stage: StageOne, Phase: "Status", Points: 1},
	{Name: "Engineer a Marvel", Stage: StageOne, Phase: "Status", Points: 1},
	{Name: "Explore Deep Space", Stage: StageOne, Phase: "Status", Points: 1},
	{Name: "Improve Infrastructure", Stage: StageOne, Phase: "Status", Points: 1},
	{Name: "Make History", Stage: StageOne, Phase: "Status", Points: 1},
	{Name: "Populate the Outer Rim", Stage: StageOne, Phase: "Status", Points: 1},
	{Name: "Push Boundaries", Stage: StageOne, Phase: "Status", Points: 1},
	{Name: "Raise a Fleet", Stage: StageOne, Phase: "Status", Points: 1},
}

var stageTwo = []Objective{
	{Name: "Centralize Galactic Trade", Stage: StageTwo, Phase: "Status", Points: 2},
	{Name: "Conquer the Weak", Stage: StageTwo, Phase: "Status", Points: 2},
	{Name: "Form Galactic Brain Trust", Stage: StageTwo, Phase: "Status", Points: 2},
	{Name: "Found a Golden Age", Stage: StageTwo, Phase: "Status", Points: 2},
	{Name: "Galvanize the People", Stage: StageTwo, Phase: "Status", Points: 2},
	{Name: "Manipulate Galactic Law", Stage: StageTwo, Phase: "Status", Points: 2},
	{Name: "Master the Sciences", Stage: StageTwo, Phase: "Status", Points: 2},
	{Name: "Revolutionize Warfare", Stage: StageTwo, Phase: "Status", Points: 2},
	{Name: "Subdue the Galaxy", Stage: StageTwo, Phase: "Status", Points: 2},
	{Name: "Unify the Colonies", Stage: StageTwo, Phase: "Status", Points: 2},
	{Name: "Achieve Supremacy", Stage: StageTwo, Phase: "Status", Points: 2},
	{Name: "Become a Legend", Stage: StageTwo, Phase: "Status", Points: 2},
	{Name: "Command an Armada", Stage: StageTwo, Phase: "Status", Points: 2},
	{Name: "Construct Massive Cities", Stage: StageTwo, Phase: "Status", Points: 2},
	{Name: "Control the Borderlands", Stage: StageTwo, Phase: "Status", Points: 2},
	{Name: "Hold Vast Reserves", Stage: StageTwo, Phase: "Status", Points: 2},
	{Name: "Patrol Vast Territories", Stage: StageTwo, Phase: "Status", Points: 2},
	{Name: "Protect the Border", Stage: StageTwo, Phase: "Status", Points: 2},
	{Name: "Reclaim Ancient Monuments", Stage: StageTwo, Phase: "Status", Points: 2},
	{Name: "Rule Distant Lands", Stage: StageTwo, Phase: "Status", Points: 2},
}

var secrets = []Objective{
	{Name: "Become the Gatekeeper", Stage: StageSecret, Phase: "Action", Points: 1},
	{Name: "Control the Region", Stage: StageSecret, Phase: "Status", Points: 1},
	{Name: "Cut Supply Lines", Stage: StageSecret, Phase: "Status", Points: 1},
	{Name: "Destroy Their Greatest Ship", Stage: StageSecret, Phase: "Action", Points: 1},
	{Name: "Establish a Perimeter", Stage: StageSecret, Phase: "Status", Points: 1},
	{Name: "Forge an Alliance", Stage: StageSecret, Phase: "Status", Points: 1},
	{Name: "Form a Spy Network", Stage: StageSecret, Phase: "Status", Points: 1},
	{Name: "Fuel the War Machine", Stage: StageSecret, Phase: "Status", Points: 1},
	{Name: "Gather a Mighty Fleet", Stage: StageSecret, Phase: "Status", Points: 1},
	{Name: "Learn the Secrets of the Cosmos", Stage: StageSecret, Phase: "Status", Points: 1},
	{Name: "Master the Laws of Physics", Stage: StageSecret, Phase: "Status", Points: 1},
	{Name: "Mine Rare Minerals", Stage: StageSecret, Phase: "Status", Points: 1},
	{Name: "Monopolize Production", Stage: StageSecret, Phase: "Status", Points: 1},
	{Name: "Occupy the Seat of the Empire", Stage: StageSecret, Phase: "Status", Points: 1},
	{Name: "Spark a Rebellion", Stage: StageSecret, Phase: "Action", Points: 1},
	{Name: "Threaten Enemies", Stage: StageSecret, Phase: "Status", Points: 1},
	{Name: "Turn Their Fleets to Dust", Stage: StageSecret, Phase: "Action", Points: 1},
	{Name: "Unveil Flagship", Stage: StageSecret, Phase: "Action", Points: 1},
	{Name: "Adapt New Strategies", Stage: StageSecret, Phase: "Status", Points: 1},
	{Name: "Become a Martyr", Stage: StageSecret, Phase: "Action", Points: 1},
}
