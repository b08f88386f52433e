// Code generated for kernel/gate: one bodyless trampoline declaration per
// IDT vector, implemented in gate_386.s. installIDT takes the address of
// each one (via funcPC, the same trick kernel/sched uses to seed a fresh
// kernel stack) to populate the corresponding IDT gate descriptor.
package gate

func vecStub0()
func vecStub1()
func vecStub2()
func vecStub3()
func vecStub4()
func vecStub5()
func vecStub6()
func vecStub7()
func vecStub8()
func vecStub9()
func vecStub10()
func vecStub11()
func vecStub12()
func vecStub13()
func vecStub14()
func vecStub15()
func vecStub16()
func vecStub17()
func vecStub18()
func vecStub19()
func vecStub20()
func vecStub21()
func vecStub22()
func vecStub23()
func vecStub24()
func vecStub25()
func vecStub26()
func vecStub27()
func vecStub28()
func vecStub29()
func vecStub30()
func vecStub31()
func vecStub32()
func vecStub33()
func vecStub34()
func vecStub35()
func vecStub36()
func vecStub37()
func vecStub38()
func vecStub39()
func vecStub40()
func vecStub41()
func vecStub42()
func vecStub43()
func vecStub44()
func vecStub45()
func vecStub46()
func vecStub47()
func vecStub48()
func vecStub49()
func vecStub50()
func vecStub51()
func vecStub52()
func vecStub53()
func vecStub54()
func vecStub55()
func vecStub56()
func vecStub57()
func vecStub58()
func vecStub59()
func vecStub60()
func vecStub61()
func vecStub62()
func vecStub63()
func vecStub64()
func vecStub65()
func vecStub66()
func vecStub67()
func vecStub68()
func vecStub69()
func vecStub70()
func vecStub71()
func vecStub72()
func vecStub73()
func vecStub74()
func vecStub75()
func vecStub76()
func vecStub77()
func vecStub78()
func vecStub79()
func vecStub80()
func vecStub81()
func vecStub82()
func vecStub83()
func vecStub84()
func vecStub85()
func vecStub86()
func vecStub87()
func vecStub88()
func vecStub89()
func vecStub90()
func vecStub91()
func vecStub92()
func vecStub93()
func vecStub94()
func vecStub95()
func vecStub96()
func vecStub97()
func vecStub98()
func vecStub99()
func vecStub100()
func vecStub101()
func vecStub102()
func vecStub103()
func vecStub104()
func vecStub105()
func vecStub106()
func vecStub107()
func vecStub108()
func vecStub109()
func vecStub110()
func vecStub111()
func vecStub112()
func vecStub113()
func vecStub114()
func vecStub115()
func vecStub116()
func vecStub117()
func vecStub118()
func vecStub119()
func vecStub120()
func vecStub121()
func vecStub122()
func vecStub123()
func vecStub124()
func vecStub125()
func vecStub126()
func vecStub127()
func vecStub128()
func vecStub129()
func vecStub130()
func vecStub131()
func vecStub132()
func vecStub133()
func vecStub134()
func vecStub135()
func vecStub136()
func vecStub137()
func vecStub138()
func vecStub139()
func vecStub140()
func vecStub141()
func vecStub142()
func vecStub143()
func vecStub144()
func vecStub145()
func vecStub146()
func vecStub147()
func vecStub148()
func vecStub149()
func vecStub150()
func vecStub151()
func vecStub152()
func vecStub153()
func vecStub154()
func vecStub155()
func vecStub156()
func vecStub157()
func vecStub158()
func vecStub159()
func vecStub160()
func vecStub161()
func vecStub162()
func vecStub163()
func vecStub164()
func vecStub165()
func vecStub166()
func vecStub167()
func vecStub168()
func vecStub169()
func vecStub170()
func vecStub171()
func vecStub172()
func vecStub173()
func vecStub174()
func vecStub175()
func vecStub176()
func vecStub177()
func vecStub178()
func vecStub179()
func vecStub180()
func vecStub181()
func vecStub182()
func vecStub183()
func vecStub184()
func vecStub185()
func vecStub186()
func vecStub187()
func vecStub188()
func vecStub189()
func vecStub190()
func vecStub191()
func vecStub192()
func vecStub193()
func vecStub194()
func vecStub195()
func vecStub196()
func vecStub197()
func vecStub198()
func vecStub199()
func vecStub200()
func vecStub201()
func vecStub202()
func vecStub203()
func vecStub204()
func vecStub205()
func vecStub206()
func vecStub207()
func vecStub208()
func vecStub209()
func vecStub210()
func vecStub211()
func vecStub212()
func vecStub213()
func vecStub214()
func vecStub215()
func vecStub216()
func vecStub217()
func vecStub218()
func vecStub219()
func vecStub220()
func vecStub221()
func vecStub222()
func vecStub223()
func vecStub224()
func vecStub225()
func vecStub226()
func vecStub227()
func vecStub228()
func vecStub229()
func vecStub230()
func vecStub231()
func vecStub232()
func vecStub233()
func vecStub234()
func vecStub235()
func vecStub236()
func vecStub237()
func vecStub238()
func vecStub239()
func vecStub240()
func vecStub241()
func vecStub242()
func vecStub243()
func vecStub244()
func vecStub245()
func vecStub246()
func vecStub247()
func vecStub248()
func vecStub249()
func vecStub250()
func vecStub251()
func vecStub252()
func vecStub253()
func vecStub254()
func vecStub255()

var vecStubs = [256]func(){
	vecStub0,
	vecStub1,
	vecStub2,
	vecStub3,
	vecStub4,
	vecStub5,
	vecStub6,
	vecStub7,
	vecStub8,
	vecStub9,
	vecStub10,
	vecStub11,
	vecStub12,
	vecStub13,
	vecStub14,
	vecStub15,
	vecStub16,
	vecStub17,
	vecStub18,
	vecStub19,
	vecStub20,
	vecStub21,
	vecStub22,
	vecStub23,
	vecStub24,
	vecStub25,
	vecStub26,
	vecStub27,
	vecStub28,
	vecStub29,
	vecStub30,
	vecStub31,
	vecStub32,
	vecStub33,
	vecStub34,
	vecStub35,
	vecStub36,
	vecStub37,
	vecStub38,
	vecStub39,
	vecStub40,
	vecStub41,
	vecStub42,
	vecStub43,
	vecStub44,
	vecStub45,
	vecStub46,
	vecStub47,
	vecStub48,
	vecStub49,
	vecStub50,
	vecStub51,
	vecStub52,
	vecStub53,
	vecStub54,
	vecStub55,
	vecStub56,
	vecStub57,
	vecStub58,
	vecStub59,
	vecStub60,
	vecStub61,
	vecStub62,
	vecStub63,
	vecStub64,
	vecStub65,
	vecStub66,
	vecStub67,
	vecStub68,
	vecStub69,
	vecStub70,
	vecStub71,
	vecStub72,
	vecStub73,
	vecStub74,
	vecStub75,
	vecStub76,
	vecStub77,
	vecStub78,
	vecStub79,
	vecStub80,
	vecStub81,
	vecStub82,
	vecStub83,
	vecStub84,
	vecStub85,
	vecStub86,
	vecStub87,
	vecStub88,
	vecStub89,
	vecStub90,
	vecStub91,
	vecStub92,
	vecStub93,
	vecStub94,
	vecStub95,
	vecStub96,
	vecStub97,
	vecStub98,
	vecStub99,
	vecStub100,
	vecStub101,
	vecStub102,
	vecStub103,
	vecStub104,
	vecStub105,
	vecStub106,
	vecStub107,
	vecStub108,
	vecStub109,
	vecStub110,
	vecStub111,
	vecStub112,
	vecStub113,
	vecStub114,
	vecStub115,
	vecStub116,
	vecStub117,
	vecStub118,
	vecStub119,
	vecStub120,
	vecStub121,
	vecStub122,
	vecStub123,
	vecStub124,
	vecStub125,
	vecStub126,
	vecStub127,
	vecStub128,
	vecStub129,
	vecStub130,
	vecStub131,
	vecStub132,
	vecStub133,
	vecStub134,
	vecStub135,
	vecStub136,
	vecStub137,
	vecStub138,
	vecStub139,
	vecStub140,
	vecStub141,
	vecStub142,
	vecStub143,
	vecStub144,
	vecStub145,
	vecStub146,
	vecStub147,
	vecStub148,
	vecStub149,
	vecStub150,
	vecStub151,
	vecStub152,
	vecStub153,
	vecStub154,
	vecStub155,
	vecStub156,
	vecStub157,
	vecStub158,
	vecStub159,
	vecStub160,
	vecStub161,
	vecStub162,
	vecStub163,
	vecStub164,
	vecStub165,
	vecStub166,
	vecStub167,
	vecStub168,
	vecStub169,
	vecStub170,
	vecStub171,
	vecStub172,
	vecStub173,
	vecStub174,
	vecStub175,
	vecStub176,
	vecStub177,
	vecStub178,
	vecStub179,
	vecStub180,
	vecStub181,
	vecStub182,
	vecStub183,
	vecStub184,
	vecStub185,
	vecStub186,
	vecStub187,
	vecStub188,
	vecStub189,
	vecStub190,
	vecStub191,
	vecStub192,
	vecStub193,
	vecStub194,
	vecStub195,
	vecStub196,
	vecStub197,
	vecStub198,
	vecStub199,
	vecStub200,
	vecStub201,
	vecStub202,
	vecStub203,
	vecStub204,
	vecStub205,
	vecStub206,
	vecStub207,
	vecStub208,
	vecStub209,
	vecStub210,
	vecStub211,
	vecStub212,
	vecStub213,
	vecStub214,
	vecStub215,
	vecStub216,
	vecStub217,
	vecStub218,
	vecStub219,
	vecStub220,
	vecStub221,
	vecStub222,
	vecStub223,
	vecStub224,
	vecStub225,
	vecStub226,
	vecStub227,
	vecStub228,
	vecStub229,
	vecStub230,
	vecStub231,
	vecStub232,
	vecStub233,
	vecStub234,
	vecStub235,
	vecStub236,
	vecStub237,
	vecStub238,
	vecStub239,
	vecStub240,
	vecStub241,
	vecStub242,
	vecStub243,
	vecStub244,
	vecStub245,
	vecStub246,
	vecStub247,
	vecStub248,
	vecStub249,
	vecStub250,
	vecStub251,
	vecStub252,
	vecStub253,
	vecStub254,
	vecStub255,
}
