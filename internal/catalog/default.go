package catalog

// Default возвращает прайс магазина.
func Default() *Catalog {
	return New(
		NewProject("Majestic", "Majestic RP", majesticServers),
		NewProject("GTA5RP", "GTA 5 RP", gta5rpServers),
	)
}

var gta5rpServers = []ServerPrice{
	{"DOWNTOWN", 690, 320},
	{"STRAWBERRY", 690, 320},
	{"VINEWOOD", 690, 320},
	{"BLACKBERRY", 720, 334},
	{"INSQUAD", 700, 325},
	{"SUNRISE", 800, 372},
	{"RAINBOW", 820, 381},
	{"RICHMAN", 790, 367},
	{"ECLIPSE", 420, 195},
	{"LA MESA", 740, 344},
	{"BURTON", 700, 325},
	{"ROCKFORD", 860, 399},
	{"ALTA", 840, 390},
	{"DEL PERRO", 750, 348},
	{"DAVIS", 790, 367},
	{"HARMONY", 650, 302},
	{"REDWOOD", 550, 255},
	{"HAWICK", 750, 348},
	{"GRAPESEED", 740, 344},
	{"MURRIETA", 580, 269},
	{"VESPUCCI", 460, 213},
	{"MILTON", 700, 325},
	{"LA PUERTA", 820, 381},
}

var majesticServers = []ServerPrice{
	{"Portland", 700, 450},
	{"Phoenix", 700, 450},
	{"Denver", 700, 450},
	{"Seattle", 700, 450},
	{"Atlanta", 700, 450},
	{"Chicago", 700, 450},
	{"San Francisco", 700, 450},
	{"Detroit", 700, 450},
	{"Washington", 700, 450},
	{"New York", 700, 450},
	{"Miami", 700, 450},
	{"San Diego", 700, 450},
	{"Los Angeles", 700, 450},
	{"Dallas", 700, 450},
	{"Boston", 700, 450},
	{"Houston", 700, 450},
	{"Las Vegas", 700, 450},
}
